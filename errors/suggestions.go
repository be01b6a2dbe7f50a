package errors

// Suggestions contains default fix suggestions for each error code.
var Suggestions = map[string]string{
	ErrCodeConfigMissingGameID: "No game id is configured. Set game_id in ~/.playauth/config " +
		"or pass it explicitly when constructing the session controller.",
	ErrCodeConfigGameNotFound: "The named game has no section in the config file. " +
		"List configured games with: playauth status",
	ErrCodeGameNotRegistered: "The game is not registered with the provider. " +
		"Register it before players can sign in.",
	ErrCodeRegistrationCheck: "The registration check could not reach the provider API. " +
		"Check network connectivity and the configured api_base_url.",
	ErrCodeProtocolMalformed: "A peer sent a message without a recognized id. " +
		"This indicates a bug in the hosting page or an incompatible provider version.",
	ErrCodeTransportSocketFailed: "The authentication socket could not be established. " +
		"Check network connectivity and the configured ws_base_url.",
	ErrCodeTransportOverlayUnavailable: "The native browser overlay is not available on this platform. " +
		"Ensure the overlay component is installed, or use the external window flow.",
	ErrCodeTransportMountMissing: "No UI mount point was provided for the iframe flow. " +
		"Create the loader, iframe and text containers before opening authentication.",
	ErrCodeTransportConnectionIDEmpty: "The provider did not return a connection id over the socket. " +
		"Retry later; if it persists, the play-session endpoint may be degraded.",
	ErrCodeStorageReadFailed: "The stored credential could not be read. " +
		"The keyring backend may be locked or the record corrupt; try: playauth logout",
	ErrCodeStorageWriteFailed: "The credential could not be persisted. " +
		"Sign-in remains valid for this run but will not survive a restart.",
}

// GetSuggestion returns the default suggestion for an error code.
// Returns empty string if no suggestion is defined.
func GetSuggestion(code string) string {
	return Suggestions[code]
}
