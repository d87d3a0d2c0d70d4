package app

import (
	"fmt"
	"net/http"
)

// Шаблон самодостаточной HTML-страницы ошибки
const errorPageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
<h1>%s</h1>
<p>%s</p>
</body>
</html>
`

// writeHTMLError пишет HTML-страницу ошибки с заданным статусом
func writeHTMLError(w http.ResponseWriter, status int, title, message string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, errorPageTemplate, title, title, message)
}
