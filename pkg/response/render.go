package response

import (
	"net/http"

	ginrender "github.com/gin-gonic/gin/render"
)

// problemRender writes a Problem with the problem+json media type; gin's
// render.JSON would force application/json.
type problemRender struct {
	problem Problem
}

var _ ginrender.Render = problemRender{}

func (r problemRender) Render(w http.ResponseWriter) error {
	r.WriteContentType(w)
	return ginrender.WriteJSON(w, r.problem)
}

func (r problemRender) WriteContentType(w http.ResponseWriter) {
	header := w.Header()
	header["Content-Type"] = []string{ProblemContentType + "; charset=utf-8"}
}
