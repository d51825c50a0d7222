// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/siemens/ipreport/addrset"
	"github.com/siemens/ipreport/pipeline"
	"github.com/siemens/ipreport/report"
	"github.com/siemens/ipreport/scheduler"
	"github.com/siemens/ipreport/storage"
	"github.com/siemens/ipreport/types"
	"github.com/thediveo/lxkns/log"
)

// maxFormSize limits complete form submissions, leaving some room for the
// free text and the multipart overhead on top of the upload.
const maxFormSize = addrset.MaxUploadSize + 1<<20

// Runner runs pipelines and keeps their artifacts, such as
// [pipeline.Pipeline].
type Runner interface {
	Run(ctx context.Context, in addrset.RawInput, news chan<- types.AddressUpdate) (*pipeline.Outcome, error)
	Store() *storage.Dir
}

// Server handles report submissions and downloads.
type Server struct {
	router chi.Router
	runner Runner
}

// New returns a new Server using the specified pipeline runner.
func New(runner Runner) *Server {
	s := &Server{
		router: chi.NewRouter(),
		runner: runner,
	}
	s.router.Use(middleware.Recoverer)
	s.router.Post("/api/reports", s.createReport)
	s.router.Get("/download/{filename}", s.download)
	return s
}

// ServeHTTP dispatches requests to the appropriate handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ReportResponse is the JSON response to a successful report submission.
type ReportResponse struct {
	report.Report
	InvalidCount int    `json:"invalid_count"`
	Warning      string `json:"warning,omitempty"`
	Download     string `json:"download"`
}

// ErrorResponse is the JSON response to failed requests. It lists the invalid
// addresses, if any.
type ErrorResponse struct {
	Error   string   `json:"error"`
	Invalid []string `json:"invalid,omitempty"`
}

func (s *Server) createReport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var mberr *http.MaxBytesError
		if errors.As(err, &mberr) {
			fail(w, r, http.StatusRequestEntityTooLarge, err, nil)
			return
		}
		fail(w, r, http.StatusBadRequest, fmt.Errorf("malformed form: %w", err), nil)
		return
	}
	in := addrset.RawInput{Text: r.FormValue("ip_input")}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
		lines, err := upload(r)
		if err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, addrset.ErrUploadTooLarge) {
				status = http.StatusRequestEntityTooLarge
			}
			fail(w, r, status, err, nil)
			return
		}
		in.FileLines = lines
	}

	outcome, err := s.runner.Run(r.Context(), in, nil)
	if err != nil {
		var invalid []string
		if outcome != nil {
			invalid = outcome.Set.Invalid
		}
		fail(w, r, statusOf(err), err, invalid)
		return
	}
	resp := ReportResponse{
		Report:       outcome.Report,
		InvalidCount: len(outcome.Report.Invalid),
		Download:     "/download/" + outcome.Artifact,
	}
	if resp.HasWarnings() {
		resp.Warning = "Invalid IP addresses ignored: " + strings.Join(resp.Invalid, ", ")
	}
	log.Debugf("created report %s for %d addresses", outcome.Artifact, outcome.Report.Requested)
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, resp)
}

// upload returns the lines of the uploaded address file, if any. Files not
// ending in ".txt" are silently ignored.
func upload(r *http.Request) ([]string, error) {
	file, header, err := r.FormFile("ip_file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()
	lines, accepted, err := addrset.ReadUpload(header.Filename, file)
	if !accepted {
		log.Debugf("ignoring upload %q", header.Filename)
	}
	return lines, err
}

// statusOf maps pipeline errors to HTTP status codes.
func statusOf(err error) int {
	switch {
	case errors.Is(err, addrset.ErrEmptyInput), errors.Is(err, addrset.ErrNoValidAddresses):
		return http.StatusBadRequest
	case errors.Is(err, scheduler.ErrNoDataRetrieved):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func fail(w http.ResponseWriter, r *http.Request, status int, err error, invalid []string) {
	if status >= http.StatusInternalServerError {
		log.Errorf("%s %s failed: %s", r.Method, r.URL.Path, err.Error())
	} else {
		log.Debugf("%s %s rejected: %s", r.Method, r.URL.Path, err.Error())
	}
	render.Status(r, status)
	render.JSON(w, r, ErrorResponse{Error: err.Error(), Invalid: invalid})
}

func (s *Server) download(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "filename")
	f, err := s.runner.Store().Open(name)
	if err != nil {
		switch {
		case errors.Is(err, storage.ErrInvalidName):
			fail(w, r, http.StatusBadRequest, err, nil)
		case errors.Is(err, storage.ErrNotFound):
			fail(w, r, http.StatusNotFound, err, nil)
		default:
			fail(w, r, http.StatusInternalServerError, err, nil)
		}
		return
	}
	defer f.Close()
	info, err := f.Stat()
	if err != nil {
		fail(w, r, http.StatusInternalServerError, err, nil)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Type", "application/pdf")
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// Serve the handler on the specified address until the context is done, then
// shut down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errch := make(chan error, 1)
	go func() {
		log.Infof("serving on %s", addr)
		errch <- srv.ListenAndServe()
	}()
	select {
	case err := <-errch:
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	}
}
