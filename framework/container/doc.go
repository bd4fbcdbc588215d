// Package container provides the dependency manager: a key/value store of
// singletons that builds missing values from provider types or from the
// annotations on a type's constructor.
//
// # Overview
//
// Keys are type names as registered in a reflection.Pool ("spf.core.Router",
// "app.Widget"). A key is stored once; asking for it again returns the same
// instance.
//
//	pool := reflection.NewPool()
//	engine, _ := annotations.NewEngine(pool)
//	c := container.New(pool, engine, container.WithLogger(log))
//
// # Storing values
//
//	// Pre-built value
//	c.Set("app.Clock", clock.Real())
//
//	// Lazy value, loaded on first Get and then kept
//	c.Set("app.Mailer", container.ProviderFunc(func(r container.Resolver) (any, error) {
//	    cfg, err := container.Resolve[*config.Configuration](r, container.KeyConfiguration)
//	    if err != nil {
//	        return nil, err
//	    }
//	    return mail.New(cfg.String("mail.host"))
//	}))
//
// Setting a key twice fails with ErrAlreadySet unless the stored value is nil.
//
// # Managed types
//
// A registered type whose constructor is annotated @SPF:DmManaged is built
// by the container. Each required constructor parameter needs an
// @SPF:DmRequires line naming the key that satisfies it:
//
//	reflection.Spec{
//	    Name:   "app.Widget",
//	    New:    NewWidget,
//	    Params: []reflection.Param{{Name: "log"}},
//	    ConstructorDoc: `
//	        @SPF:DmManaged
//	        @SPF:DmRequires spf.log.Logger $log`,
//	}
//
// Or, with the builder:
//
//	container.Define("app.Widget", NewWidget).
//	    Param("log").
//	    Requires(container.KeyLogger, "log").
//	    Register(pool)
//
// @SPF:DmProvider names a provider type that builds the instance instead.
// Types without @SPF:DmManaged are built only when their constructor takes
// no required arguments.
//
// # Providers
//
// Before trying annotations the container looks for a provider type derived
// from the key. With the default location {"spf.", "spf.providers."} the key
// "spf.core.Router" is loaded by "spf.providers.core.RouterProvider". Add
// project locations with AddProviderLocation; the newest location wins unless
// the container uses OldestFirst.
//
// # Resolving
//
//	raw, err := c.Get("app.Widget")
//
//	// Generic
//	w, err := container.Resolve[*Widget](c, "app.Widget")
package container
