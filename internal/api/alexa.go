package api

import (
	"io"
	"net/http"

	"github.com/greyfell/voicebridge/internal/smarthome"
)

// handleDiscovery returns the discovery response describing the fleet.
// The request body is accepted for protocol symmetry but its content is
// not needed: discovery has no per-request parameters.
func (s *Server) handleDiscovery(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Discover())
}

// handleControl routes one directive envelope through the smart home
// service. Discovery directives sent here are honoured too, so clients
// that multiplex everything over a single endpoint still work.
func (s *Server) handleControl(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeBadRequest(w, "reading request body")
		return
	}

	directive, err := smarthome.ParseDirective(body)
	if err != nil {
		resp, status := smarthome.BuildErrorResponse(smarthome.Directive{}, err)
		writeJSON(w, status, resp)
		return
	}

	if directive.Namespace == smarthome.NamespaceDiscovery && directive.Name == smarthome.NameDiscover {
		writeJSON(w, http.StatusOK, s.service.Discover())
		return
	}

	resp, err := s.service.HandleDirective(directive)
	if err != nil {
		errResp, status := smarthome.BuildErrorResponse(directive, err)
		writeJSON(w, status, errResp)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
