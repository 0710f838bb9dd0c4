// Package router classifies incoming user messages by complexity and
// decides between cheap direct semantic retrieval and expensive
// multi-source tool calling. It also carries the static catalog of
// tool schemas exposed to calling LLMs.
package router
