package httpmiddleware

import (
	"net/http"
	"strconv"
	"strings"
)

// CORSConfig configures cross-origin access to the API.
type CORSConfig struct {
	// AllowOrigins lists permitted origins. Empty or "*" permits any origin.
	AllowOrigins []string
	// AllowMethods defaults to the methods the MIS API serves.
	AllowMethods []string
	// AllowHeaders, when empty, echoes Access-Control-Request-Headers.
	AllowHeaders []string
	// ExposeHeaders lists response headers readable by browser scripts.
	ExposeHeaders []string
	// MaxAge is the preflight cache lifetime in seconds. Zero omits it.
	MaxAge int
}

var defaultCORSMethods = []string{
	http.MethodGet, http.MethodPost, http.MethodPut,
	http.MethodPatch, http.MethodDelete, http.MethodOptions,
}

// CORS answers preflight requests and tags responses with
// Access-Control-* headers for permitted origins.
func CORS(cfg CORSConfig) Middleware {
	anyOrigin := len(cfg.AllowOrigins) == 0
	origins := make(map[string]string, len(cfg.AllowOrigins))
	for _, o := range cfg.AllowOrigins {
		if o == "*" {
			anyOrigin = true
			continue
		}
		origins[strings.ToLower(o)] = o
	}

	methods := cfg.AllowMethods
	if len(methods) == 0 {
		methods = defaultCORSMethods
	}
	allowMethods := strings.Join(methods, ", ")
	allowHeaders := strings.Join(cfg.AllowHeaders, ", ")
	exposeHeaders := strings.Join(cfg.ExposeHeaders, ", ")

	resolve := func(origin string) string {
		if anyOrigin {
			return "*"
		}
		return origins[strings.ToLower(origin)]
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := w.Header()
			if !anyOrigin {
				h.Add("Vary", "Origin")
			}

			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}
			allowed := resolve(origin)

			preflight := r.Method == http.MethodOptions &&
				r.Header.Get("Access-Control-Request-Method") != ""
			if !preflight {
				if allowed != "" {
					h.Set("Access-Control-Allow-Origin", allowed)
					if exposeHeaders != "" {
						h.Set("Access-Control-Expose-Headers", exposeHeaders)
					}
				}
				next.ServeHTTP(w, r)
				return
			}

			h.Add("Vary", "Access-Control-Request-Method")
			h.Add("Vary", "Access-Control-Request-Headers")
			if allowed != "" {
				h.Set("Access-Control-Allow-Origin", allowed)
				h.Set("Access-Control-Allow-Methods", allowMethods)
				switch {
				case allowHeaders != "":
					h.Set("Access-Control-Allow-Headers", allowHeaders)
				case r.Header.Get("Access-Control-Request-Headers") != "":
					h.Set("Access-Control-Allow-Headers", r.Header.Get("Access-Control-Request-Headers"))
				}
				if cfg.MaxAge > 0 {
					h.Set("Access-Control-Max-Age", strconv.Itoa(cfg.MaxAge))
				}
			}
			w.WriteHeader(http.StatusNoContent)
		})
	}
}
