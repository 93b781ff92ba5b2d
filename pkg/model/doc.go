// Package model provides embedding models for package hotword.
//
// The hotword detectors do not run neural networks themselves. They talk to
// a [hotword.Model], and this package supplies the implementations used by
// the mofel binary:
//
//   - [Remote] sends each frame to an inference sidecar over a websocket
//     and receives the embedding back.
//   - [Similarity] is the scoring function shared by every implementation:
//     the best cosine similarity against the reference set, mapped to [0, 1].
//
// # Sidecar Protocol
//
// Each frame is one JSON text message:
//
//	{"id": "...", "model": "resnet_50_arc", "sample_rate": 16000, "audio": "<base64 PCM16LE>"}
//
// and the sidecar answers with one message carrying the same id:
//
//	{"id": "...", "embedding": [0.12, -0.03, ...]}
//	{"id": "...", "error": "frame must be 16000 samples"}
//
// Responses with an unknown id are discarded.
package model
