// internal/handlers/ws_codes.go
package handlers

// BadSubprotocolError is the custom WebSocket close code sent when a client
// negotiates an unsupported subprotocol. Auth and game-id failures are
// rejected before the upgrade and carry plain HTTP statuses instead.
const BadSubprotocolError = 3000
