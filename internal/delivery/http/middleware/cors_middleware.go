package middleware

import "net/http"

// CORSMiddleware allows browser clients from the configured origins. "*"
// allows any origin.
type CORSMiddleware struct {
	allowAny bool
	origins  map[string]bool
}

func NewCORSMiddleware(origins []string) *CORSMiddleware {
	m := &CORSMiddleware{origins: make(map[string]bool, len(origins))}
	for _, origin := range origins {
		if origin == "*" {
			m.allowAny = true
		}
		m.origins[origin] = true
	}
	return m
}

func (m *CORSMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		switch origin := req.Header.Get("Origin"); {
		case m.allowAny:
			w.Header().Set("Access-Control-Allow-Origin", "*")
		case origin != "" && m.origins[origin]:
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Add("Vary", "Origin")
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if req.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, req)
	})
}
