// Package domain defines the core model types, the repository interfaces the
// persistence layer implements, and the notification payload union broadcast
// on the live feeds. No implementation code - just contracts.
package domain
