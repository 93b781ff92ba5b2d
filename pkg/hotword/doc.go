// Package hotword decides whether a spoken hotword (wake word) occurred in
// an audio frame.
//
// # Pipeline
//
//  1. Model.AudioToVector: PCM16 16kHz mono frame → embedding
//  2. Detector.ScoreEmbedding: embedding vs. reference embeddings → score
//  3. Threshold and cooldown: score → match decision
//
// A [Detector] handles one hotword. A [MultiDetector] arbitrates between
// several detectors sharing one [Model], embedding each frame only once.
//
// # Reference Profiles
//
// Each hotword is described by a reference file holding at least
// [MinReferenceSamples] precomputed embeddings and the model_type that
// produced them:
//
//	{"embeddings": [[0.12, ...], ...], "model_type": "resnet_50_arc"}
//
// Files are read through a [refstore.Store] and may be JSON, YAML or
// msgpack. A profile whose model_type does not match the Model is a
// configuration error.
//
// # Cooldown
//
// In continuous mode a detector that has just fired reports
// [SuppressedScore] for the rest of its relaxation window, so one long
// utterance triggers once. The suppressed score is an ordinary score: it
// simply fails the threshold, which is how a MultiDetector drops a cooling
// detector from candidacy.
//
// # Frame Guard
//
// Detector.ScoreFrame never scores silent frames. Frames whose first 100 ms
// are already loud relative to the frame peak are rejected too, unless the
// caller asks for unsafe scoring. Rejection is a nil result, not an error.
// A MultiDetector has no guard: it embeds every frame it is given.
//
// # Quick Start
//
//	model := model.NewRemote("ws://127.0.0.1:8765/embed", hotword.KindResnet50ArcLoss)
//	store, _ := refstore.NewDir(".")
//	mofel, err := hotword.Open(ctx, "mofel", model, store, "mofel/model/mofel_ref.json",
//		hotword.WithThreshold(0.7), hotword.WithRelaxation(2*time.Second))
//	stop, err := hotword.Open(ctx, "stop", model, store, "stop/model/stop_ref.json",
//		hotword.WithThreshold(0.7), hotword.WithRelaxation(2*time.Second))
//	multi, err := hotword.NewMulti(model, mofel, stop)
//
//	for {
//		frame, err := src.Frame(ctx)
//		d, score, err := multi.FindBestMatch(frame, false)
//		if d != nil {
//			fmt.Println("detected", d.Label(), score)
//		}
//	}
package hotword
