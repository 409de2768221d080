// Package drive uploads finished run artifacts to Google Drive.
//
// Credentials come from the DRIVE_CLIENT_ID, DRIVE_CLIENT_SECRET, and
// DRIVE_REFRESH_TOKEN environment variables; the refresh token is
// exchanged through the standard OAuth2 flow. Uploads for a run happen
// in parallel and the whole batch fails if any file does.
package drive
