// Package stream turns live PCM16 audio into overlapping frames for the
// hotword detectors.
//
// A [Window] reads from any io.Reader of 16 kHz mono PCM16 and yields frames
// of a fixed length, each advanced by a fixed slide from the previous one.
// The defaults, a 1.5 s window sliding by 0.75 s, give every spoken word
// two chances to land fully inside a frame.
//
// A [Capture] runs an external recorder such as arecord and exposes its
// standard output as the audio source:
//
//	c, err := stream.StartCapture(ctx, stream.DefaultCommand...)
//	if err != nil {
//		return err
//	}
//	defer c.Close()
//	w := stream.NewWindow(c)
//	for {
//		frame, err := w.Frame(ctx)
//		...
//	}
package stream
