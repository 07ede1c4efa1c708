// Package notifications delivers download events via ntfy.
//
// The default implementation publishes to the topic URL configured in
// config.toml and degrades to a no-op when no topic is set. The downloads and
// errors toggles in the [notifications] section silence each event family
// independently; TestNotification always sends.
package notifications
