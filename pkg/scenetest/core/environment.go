package core

// Environment is a loaded scene: a named container of components, some of
// which may implement TestCase.
type Environment interface {
	Named

	// Components in declaration order.
	Components() []any
}

// EnvironmentSource exposes the currently loaded environments, in load
// order.
type EnvironmentSource interface {
	Environments() []Environment
}
