// Command storyforge generates narrated story videos from a topic and
// manages the run history and configuration that support it.
package main
