// Package classifier provides the binary classifiers that predict the
// commitment status of a generator from the instantaneous demand and
// renewable forecast, and the Ensemble holding one classifier per generator.
//
// Classifiers are treated as opaque fit/predict capabilities. The ensemble
// predicts every generator independently, so a predicted status vector is
// not guaranteed to be able to meet demand.
package classifier
