// Package gateway exposes the bot to chat clients over WebSocket.
//
// Clients join a room identified by server and channel, post messages into
// it and receive every message and bot reply posted to the room. Each room
// keeps a bounded history that is replayed to clients when they join. Bot
// replies carry both the structured pipeline reply and a plain-text body
// produced by Render.
package gateway
