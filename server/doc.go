/*
Package server implements the HTTP surface of ipreport: a form endpoint for
submitting address lists and a download endpoint for the rendered PDF
documents.

	POST /api/reports          multipart/form-data or url-encoded form with
	                           fields "ip_input" (comma-separated text) and
	                           "ip_file" (optional ".txt" upload)
	GET  /download/{filename}  PDF document as attachment

All responses are JSON, except for downloads.
*/
package server
