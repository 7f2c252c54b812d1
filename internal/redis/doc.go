// Package redis provides the Redis client and the token read-through cache.
//
// Redis is optional: when no REDIS_URL is configured, token lookups fall
// through to PostgreSQL on every request.
package redis
