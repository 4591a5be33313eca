// Package protocol implements the mcparam tuning-link wire format.
//
// Every WebSocket binary message carries exactly one frame:
//
//	[0]     0x7e        sync
//	[1]     0x01        version
//	[2-5]   message id  little-endian uint32, 0 = broadcast
//	[6]     type        message type
//	[7-8]   length      little-endian uint16 payload length
//	[9+]    payload
//
// Requests (RequestList, RequestRead, Set, Reset, Describe) are answered with
// the same message id. Value changes made by any session are broadcast to all
// sessions with id 0. Parameter names are NUL-padded to 16 bytes and values
// travel as a 32-bit word: float32 bits for float parameters, int32 for int32
// and bool parameters.
//
// # Usage Example - Encoding
//
//	id := protocol.GenerateMessageID()
//	data, err := protocol.Encode(id, &protocol.SetMessage{
//	    Name:  "MC_ROLL_P",
//	    Value: param.Float(7),
//	})
//
// # Usage Example - Decoding
//
//	frame, msg, err := protocol.Decode(data)
//	if err != nil {
//	    return err
//	}
//	switch m := msg.(type) {
//	case *protocol.ValueMessage:
//	    fmt.Println(m.Name, m.Value)
//	case *protocol.AckMessage:
//	    return m.Err()
//	}
//
// Ack codes 1-6 are the registry's error types, so a client can rebuild a
// *param.Error from any failed request with AckMessage.Err.
package protocol
