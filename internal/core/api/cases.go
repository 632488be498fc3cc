package api

import (
	"bytes"
	"errors"
	"io"
	"net/http"

	"github.com/solatis/policykeeper/internal/types"
)

// multipartMemory is the in-memory threshold for multipart parsing; larger
// parts spill to temporary files.
const multipartMemory = 8 << 20

var pdfMagic = []byte("%PDF-")

func (h *Handler) validateCase(w http.ResponseWriter, r *http.Request) {
	var req validateCaseRequest
	if err := h.decode(w, r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	data, err := types.ParseCaseData(req.CaseData)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	result, err := h.cases.ValidateCase(r.Context(), req.PolicyID, data)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (h *Handler) extractCase(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeError(w, r, types.InvalidInput("upload exceeds %d bytes", tooLarge.Limit))
			return
		}
		h.writeError(w, r, types.InvalidInput("malformed multipart body: %v", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	policyID := r.FormValue("policyId")
	if policyID == "" {
		h.writeError(w, r, types.InvalidInput("policyId is required"))
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.writeError(w, r, types.InvalidInput("file is required"))
		return
	}
	defer file.Close()

	pdf, err := io.ReadAll(file)
	if err != nil {
		h.writeError(w, r, types.InvalidInput("read upload: %v", err))
		return
	}
	if !bytes.HasPrefix(pdf, pdfMagic) {
		h.writeError(w, r, types.InvalidInput("file must be a PDF document"))
		return
	}

	result, err := h.extractor.ExtractCase(r.Context(), policyID, pdf)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
