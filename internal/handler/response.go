package handler

import "net/http"

// redirectBack sends the browser to the page it came from, falling back
// to the feed when there is no Referer. Every interaction endpoint ends
// here, mutation and no-op alike — the redirect is identical either way,
// so the response reveals nothing about what the handler did.
func redirectBack(w http.ResponseWriter, r *http.Request) {
	target := r.Referer()
	if target == "" {
		target = "/"
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
