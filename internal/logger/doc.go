// Package logger wraps zap with a process-wide sugared logger, a context-scoped
// child logger and level parsing.
//
// Services never hold a logger of their own. They carry one in the context,
// narrow it with WithName or WithKV and log through the package functions,
// so every line written while serving a house carries that house's name.
package logger
