package app

// ServiceProvider groups a project's registrations. Register runs when the
// provider is added; Boot runs once the application boots, when every
// provider has registered.
//
//	type AppServiceProvider struct{ app.BaseProvider }
//
//	func (p *AppServiceProvider) Register(a *app.Application) error {
//	    return container.Define("app.controllers.UserController", NewUserController).
//	        Param("db").
//	        Requires(container.KeyDatabase, "db").
//	        Register(a.Pool())
//	}
type ServiceProvider interface {
	Register(a *Application) error
	Boot(a *Application) error
}

// BaseProvider provides no-op defaults; embed it and override what you need.
type BaseProvider struct{}

func (BaseProvider) Register(*Application) error { return nil }
func (BaseProvider) Boot(*Application) error     { return nil }
