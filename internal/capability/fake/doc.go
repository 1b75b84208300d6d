// Package fake provides an in-memory robot for development and tests.
package fake
