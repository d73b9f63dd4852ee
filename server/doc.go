// Package server exposes the librarian service over HTTP: POST /query for
// retrieval, POST /chunks for ingestion, and GET /healthz for liveness.
package server
