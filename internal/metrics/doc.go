// Package metrics provides build observability hooks.
//
// Components receive a Recorder and default to NoopRecorder, so call sites
// never check for nil. PrometheusRecorder backs the interface with
// client_golang collectors under the "labref" namespace; its registry can be
// written as a node-exporter textfile after a one-shot build or served over
// HTTP while watching.
package metrics
