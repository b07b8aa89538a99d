package api

import "net/http"

// dashboardHandler serves the embedded operator dashboard.
type dashboardHandler struct {
	fileServer http.Handler
}

func newDashboardHandler() *dashboardHandler {
	return &dashboardHandler{fileServer: http.FileServer(http.FS(dashboardFS))}
}

// HandleDashboard serves the dashboard page.
func (h *dashboardHandler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, nil)
		return
	}
	r.URL.Path = "/dashboard.html"
	h.fileServer.ServeHTTP(w, r)
}
