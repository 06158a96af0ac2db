package gateway

// connMessenger adapts a gateway client to the narrow transport handle a
// session holds. Sends are enqueued on the client's outbound buffer and
// never block match state.
type connMessenger struct {
	c *client
}

func (m connMessenger) Send(event string, payload any) {
	m.c.send(event, payload)
}

func (m connMessenger) JoinRoom(room string) {
	m.c.g.joinRoom(m.c, room)
}
