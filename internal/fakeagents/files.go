// Copyright (c) Microsoft. All rights reserved.

package fakeagents

import (
	"io"
	"net/http"
	"slices"

	"github.com/labstack/echo/v4"

	"github.com/azure-ai-foundry/foundry-samples/go/agents"
)

type fileState struct {
	info         agents.FileInfo
	data         []byte
	vectorStores []string
}

func (s *Server) uploadFile(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return badRequest("multipart field 'file' is required")
	}
	purpose := agents.FilePurpose(c.FormValue("purpose"))
	switch purpose {
	case agents.FilePurposeAgents, agents.FilePurposeVision:
	default:
		return badRequest("unsupported purpose '" + string(purpose) + "'")
	}
	src, err := fh.Open()
	if err != nil {
		return err
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	f := &fileState{
		info: agents.FileInfo{
			ID:        newID("assistant-"),
			Object:    "file",
			Bytes:     int64(len(data)),
			Filename:  fh.Filename,
			CreatedAt: s.now(),
			Purpose:   purpose,
			Status:    agents.FileStatusPending,
		},
		data: data,
	}
	if len(data) == 0 {
		f.info.Status = agents.FileStatusError
		f.info.StatusDetails = "file is empty"
	}
	s.files[f.info.ID] = f
	return c.JSON(http.StatusOK, f.info)
}

func (s *Server) getFile(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[c.Param("file_id")]
	if !ok {
		return notFound("file", c.Param("file_id"))
	}
	if f.info.Status == agents.FileStatusPending {
		f.info.Status = agents.FileStatusProcessed
	}
	return c.JSON(http.StatusOK, f.info)
}

func (s *Server) getFileContent(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[c.Param("file_id")]
	if !ok {
		return notFound("file", c.Param("file_id"))
	}
	return c.Blob(http.StatusOK, echo.MIMEOctetStream, f.data)
}

func (s *Server) listFiles(c echo.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	purpose := agents.FilePurpose(c.QueryParam("purpose"))
	out := make([]agents.FileInfo, 0, len(s.files))
	for _, f := range s.files {
		if purpose == "" || f.info.Purpose == purpose {
			out = append(out, f.info)
		}
	}
	slices.SortFunc(out, func(a, b agents.FileInfo) int { return int(a.CreatedAt - b.CreatedAt) })
	return c.JSON(http.StatusOK, agents.ListPage[agents.FileInfo]{Object: "list", Data: out})
}

func (s *Server) deleteFile(c echo.Context) error {
	id := c.Param("file_id")
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[id]; !ok {
		return notFound("file", id)
	}
	delete(s.files, id)
	return c.JSON(http.StatusOK, agents.DeletionStatus{ID: id, Object: "file", Deleted: true})
}
