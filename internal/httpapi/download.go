package httpapi

import (
	"mime"
	"net/http"
	"net/url"
	"os"

	"exporthub/internal/common/fsutil"
	"exporthub/pkg/types"
)

// download redirects to the card's uploaded artifact or, failing that, serves
// model_file_name from the artifacts directory.
func (s *server) download(w http.ResponseWriter, r *http.Request) {
	org, id := pathParam(r, "organization"), pathParam(r, "modelID")
	card, err := s.svc.Model(org, id)
	if err != nil {
		if status := statusFor(err); status != http.StatusNotFound {
			render(w, status, "404", map[string]string{"Message": err.Error()})
			return
		}
		renderNotFound(w, modelNotFoundMessage(org, id))
		return
	}
	if sum := card.SHA256(); sum != "" {
		w.Header().Set("X-Checksum-Sha256", sum)
	}

	if u, ok := remoteURL(card); ok {
		downloadsTotal.WithLabelValues("redirect").Inc()
		http.Redirect(w, r, u, http.StatusFound)
		return
	}

	if p, ok := fsutil.FindArtifact(artifactsDir, org, card.FileName()); ok {
		f, err := os.Open(p)
		if err == nil {
			defer f.Close()
			st, err := f.Stat()
			if err == nil {
				downloadsTotal.WithLabelValues("file").Inc()
				w.Header().Set("Content-Type", "application/octet-stream")
				w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": card.FileName()}))
				http.ServeContent(w, r, card.FileName(), st.ModTime(), f)
				return
			}
		}
	}

	downloadsTotal.WithLabelValues("missing").Inc()
	renderNotFound(w, "No artifact available for model card '"+id+"' in organization '"+org+"'")
}

// remoteURL returns the card's url when it is an absolute http(s) URL.
func remoteURL(card types.ModelCard) (string, bool) {
	raw := card.URL()
	if raw == "" {
		return "", false
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}
	return u.String(), true
}
