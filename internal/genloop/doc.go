// Package genloop drives the external world-model generation and evaluation
// scripts over a range of example indices.
//
// For each example it runs the generate script, then the visualize script,
// then renames the visualization artifacts to example_<i>.gif and
// example_<i>.png. After the range it runs the evaluate script once. Steps run
// strictly in sequence; the first failing subprocess aborts the loop.
package genloop
