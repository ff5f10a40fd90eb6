package http

import (
	"net/http"
)

func (h *Handler) getServerVersion(w http.ResponseWriter, r *http.Request) {
	info := h.services.AppInfoService.GetBuildInfo(r.Context())

	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("X-Build-Commit", info.Commit)
	w.Header().Set("X-Build-Date", info.Date)
	w.Write([]byte(h.services.AppInfoService.GetAppVersion(r.Context())))
}
