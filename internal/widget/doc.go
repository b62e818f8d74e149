// Package widget ships the basic built-in components: text, button,
// input, and the column and row containers. They are ordinary components
// with convenience placement helpers; applications define richer ones the
// same way.
package widget
