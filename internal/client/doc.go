// Package client talks to a tuning server over the binary tuning link.
//
//	c, err := client.Dial(ctx, "ws://10.0.0.2:14560/ws")
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	if err := c.Set(ctx, "MC_ROLL_P", param.Float(7)); param.IsOutOfRange(err) {
//	    // rejected by the server, value unchanged
//	}
//
// Server-side validation failures are returned as *param.Error, so the
// registry's error helpers work on both sides of the link.
package client
