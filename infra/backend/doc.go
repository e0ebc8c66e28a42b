// Package backend is the REST client for the scheduling/solver service.
//
// Every request is tagged with the active database selection twice: as a
// lowercase db query parameter and as an uppercase X-DB header. Read
// operations degrade to empty results when the backend answers with a
// non-2xx status; operations that start work or create data return an
// *APIError instead.
package backend
