package main

import (
	"fmt"
	"io"
	"slices"

	"github.com/docker/go-units"

	"github.com/JaimeStill/docview/internal/documents"
	"github.com/JaimeStill/docview/internal/session"
)

func report(w io.Writer, snap session.Snapshot) {
	title := snap.DocumentID
	if snap.Document != nil && snap.Document.Title != "" {
		title = snap.Document.Title
	}
	fmt.Fprintf(w, "%s (%s)\n", title, snap.DocumentID)

	vs := slices.Clone(snap.Versions)
	slices.Reverse(vs)
	for _, v := range vs {
		marker := " "
		if v.ID == snap.SelectedVersionID {
			marker = "*"
		}
		fmt.Fprintf(w, "  %s %s%s\n", marker, v.Label(), uploaded(v))
	}

	fmt.Fprintf(w, "preview: %s", snap.State)
	if h := snap.Handle; h != nil {
		fmt.Fprintf(w, " [%s, %s, %s", snap.Renderer(), h.ContentType, units.HumanSize(float64(h.Size)))
		if h.PageCount != nil {
			fmt.Fprintf(w, ", %d pages", *h.PageCount)
		}
		if h.Width > 0 {
			fmt.Fprintf(w, ", %dx%d", h.Width, h.Height)
		}
		fmt.Fprint(w, "]")
	}
	if snap.Err != nil {
		fmt.Fprintf(w, ": %v", snap.Err)
	}
	fmt.Fprintln(w)
}

func uploaded(v documents.Version) string {
	if v.UploadedAt == nil {
		return ""
	}
	return " (" + v.UploadedAt.Format("2006-01-02 15:04") + ")"
}
