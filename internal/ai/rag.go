package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

// RAGClient talks to the retrieval-augmented generation service and its
// document ingestion endpoint.
type RAGClient struct {
	generateURL string
	uploadURL   string
	http        *http.Client
}

func NewRAGClient(serviceURL, uploadURL string, httpClient *http.Client) *RAGClient {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	c := &RAGClient{http: httpClient}
	if s := strings.TrimRight(strings.TrimSpace(serviceURL), "/"); s != "" {
		c.generateURL = s + "/generate"
	}
	if s := strings.TrimRight(strings.TrimSpace(uploadURL), "/"); s != "" {
		c.uploadURL = s + "/process"
	}
	return c
}

// Enabled reports whether a generation endpoint is configured.
func (c *RAGClient) Enabled() bool {
	return c != nil && c.generateURL != ""
}

// IngestEnabled reports whether an upload endpoint is configured.
func (c *RAGClient) IngestEnabled() bool {
	return c != nil && c.uploadURL != ""
}

type ragRequest struct {
	Prompt      string `json:"prompt"`
	ChatHistory []Turn `json:"chat_history"`
}

type ragResponse struct {
	Response string `json:"response"`
}

func (c *RAGClient) Generate(ctx context.Context, prompt string, history []Turn) (string, error) {
	if !c.Enabled() {
		return "", fmt.Errorf("rag service url is not configured")
	}
	if history == nil {
		history = []Turn{}
	}

	body, err := json.Marshal(ragRequest{Prompt: prompt, ChatHistory: history})
	if err != nil {
		return "", fmt.Errorf("marshal rag request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.generateURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build rag request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("rag request failed: %w", err)
	}
	defer res.Body.Close()
	if err := checkStatus(res, "rag"); err != nil {
		return "", err
	}

	var out ragResponse
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode rag response: %w", err)
	}
	text := strings.TrimSpace(out.Response)
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// Ingest forwards a file to the document processing service so later
// answers can draw on it.
func (c *RAGClient) Ingest(ctx context.Context, fileName string, r io.Reader) error {
	if !c.IngestEnabled() {
		return fmt.Errorf("rag upload url is not configured")
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return fmt.Errorf("copy file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("close multipart: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &buf)
	if err != nil {
		return fmt.Errorf("build ingest request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("ingest request failed: %w", err)
	}
	defer res.Body.Close()
	return checkStatus(res, "ingest")
}

func checkStatus(res *http.Response, op string) error {
	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	return fmt.Errorf("%s request status %d: %s", op, res.StatusCode, strings.TrimSpace(string(body)))
}
