// Package httpapi implements the goSession AuthClient against an HTTP
// backend speaking the versioned /api/v1/auth contract.
//
// Every response travels in one envelope:
//
//	{"success": true,  "data": {...}}
//	{"success": false, "error": {"code": "...", "message": "...", "details": {}}}
//
// Well-known error codes map onto the sentinel errors of the root
// package so callers can branch with errors.Is instead of string
// matching. Unknown codes surface as *goSession.APIError.
package httpapi
