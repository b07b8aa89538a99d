package swagger_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gigbridge/matchd/internal/adapters/http/swagger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestDocsRoutes(t *testing.T) {
	Convey("Given the documentation server", t, func() {
		mux := http.NewServeMux()
		swagger.NewServer().Register(context.Background(), mux)

		get := func(path string) *httptest.ResponseRecorder {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			return rec
		}

		Convey("When fetching the docs page", func() {
			rec := get("/docs")

			Convey("Then the ReDoc page is served", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
				So(rec.Body.String(), ShouldContainSubstring, "redoc")
			})
		})

		Convey("When fetching the OpenAPI document", func() {
			rec := get("/docs/openapi.yaml")

			Convey("Then the embedded spec is served", func() {
				So(rec.Code, ShouldEqual, http.StatusOK)
				So(rec.Body.String(), ShouldContainSubstring, "openapi:")
				So(rec.Body.String(), ShouldContainSubstring, "/requests/{id}/compute")
			})
		})

		Convey("When posting to the docs page", func() {
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/docs", nil))

			Convey("Then the method is rejected", func() {
				So(rec.Code, ShouldEqual, http.StatusMethodNotAllowed)
			})
		})
	})
}

func TestOpenAPIEmbed(t *testing.T) {
	Convey("Given the embedded OpenAPI document", t, func() {
		spec := swagger.OpenAPI()

		Convey("Then it is non-empty and names the service", func() {
			So(len(spec), ShouldBeGreaterThan, 0)
			So(string(spec), ShouldContainSubstring, "matchd")
		})
	})
}
