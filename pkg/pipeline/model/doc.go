// Package model provides the data structures shared by the pipeline package
// and its options. It defines the ports a stage exposes, the values flowing
// through them, the bindings that connect them, and the hook interface a
// pipeline option implements.
package model
