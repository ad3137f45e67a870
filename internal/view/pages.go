package view

import (
	"html/template"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/campusmeet/backend/internal/locale"
)

var errorTmpl = template.Must(template.New("error").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Meeting room</title></head>
<body>
<div class="alert alert-danger" role="alert">{{.Message}}</div>
{{if .LinkURL}}<p><a href="{{.LinkURL}}">{{.LinkText}}</a></p>{{end}}
</body></html>
`))

var closeTmpl = template.Must(template.New("close").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>Meeting room</title></head>
<body onload="window.close()">
<p>{{.Message}}</p>
</body></html>
`))

// renderError writes a terminal localized error page. linkURL is an optional
// remediation link; linkText defaults to the URL itself.
func renderError(c *gin.Context, message, linkURL, linkText string) {
	if linkURL != "" && linkText == "" {
		linkText = linkURL
	}
	var b strings.Builder
	_ = errorTmpl.Execute(&b, map[string]string{
		"Message":  message,
		"LinkURL":  linkURL,
		"LinkText": linkText,
	})
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(b.String()))
}

// renderCloseWindow instructs the browser to close the meeting window.
func renderCloseWindow(c *gin.Context) {
	var b strings.Builder
	_ = closeTmpl.Execute(&b, map[string]string{
		"Message": locale.Str("view_message_close_window"),
	})
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(b.String()))
}
