package server

import "html/template"

// The view shell is deliberately minimal: the core of this application is the
// auth lifecycle and API client, not the gallery chrome.
var views = template.Must(template.New("views").Parse(`
{{define "head"}}<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>{{.}} - Lumina</title></head>
<body>{{end}}

{{define "foot"}}</body></html>{{end}}

{{define "login"}}{{template "head" "Sign in"}}
<h1>Lumina</h1>
<p>Browse your Adobe Lightroom albums.</p>
<p><a href="/oauth/start">Sign in with Adobe</a></p>
{{template "foot"}}{{end}}

{{define "albums"}}{{template "head" "Albums"}}
<h1>Albums</h1>
<ul>
{{range .Albums}}
  <li>
    <a href="/album/{{.ID}}">{{.Name}}</a> ({{.PhotoCount}} photos)
    {{if .CoverAssetID}}<img src="/thumbnail/{{.CoverAssetID}}?type=thumbnail" alt="">{{end}}
  </li>
{{else}}
  <li>No albums yet.</li>
{{end}}
</ul>
{{if .NextNameAfter}}<p data-next-cursor="{{.NextNameAfter}}">More albums available.</p>{{end}}
<p><a href="/logout">Log out</a></p>
{{template "foot"}}{{end}}

{{define "gallery"}}{{template "head" .Album.Name}}
<h1>{{.Album.Name}}</h1>
<p><a href="/albums">Back to albums</a></p>
<ul>
{{range .Photos}}
  <li><a href="{{.FullURL}}"><img src="{{.ThumbnailURL}}" alt="{{.Filename}}"></a></li>
{{else}}
  <li>This album is empty.</li>
{{end}}
</ul>
{{if .PrevURL}}<a href="/album/{{.Album.ID}}?page_url={{.PrevURL}}">Previous</a>{{end}}
{{if .NextURL}}<a href="/album/{{.Album.ID}}?page_url={{.NextURL}}">Next</a>{{end}}
{{template "foot"}}{{end}}

{{define "error"}}{{template "head" "Error"}}
<h1>Something went wrong</h1>
<p>{{.}}</p>
<p><a href="/login">Back to login</a></p>
{{template "foot"}}{{end}}
`))
