// Package types holds the codec plan kinds and the struct tag grammar shared
// by the plan compiler and its tests.
package types
