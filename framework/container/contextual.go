package container

// ContextualBuilder implements the fluent contextual binding API on top of
// an existing registration.
//
//	// Laravel: $app->when(PhotoController::class)->needs(Filesystem::class)->give(S3::class)
//	c.When("photos").Needs("filesystem").Give("s3")
type ContextualBuilder struct {
	container *Container
	name      string
	needs     string
}

// When starts a contextual binding chain for the registration under name.
func (c *Container) When(name string) *ContextualBuilder {
	return &ContextualBuilder{container: c, name: normalize(name)}
}

// Needs names the constructor or setter parameter being configured.
func (b *ContextualBuilder) Needs(param string) *ContextualBuilder {
	b.needs = param
	return b
}

// Give resolves the parameter from the logical name dep.
func (b *ContextualBuilder) Give(dep string) error {
	return b.apply(func(r *registration) {
		r.dependencies[b.needs] = normalize(dep)
		delete(r.parameters, b.needs)
	})
}

// GiveValue injects value for the parameter.
//
//	// Laravel: ->give('/tmp/photos')
//	c.When("photos").Needs("root").GiveValue("/tmp/photos")
func (b *ContextualBuilder) GiveValue(value any) error {
	return b.apply(func(r *registration) {
		r.parameters[b.needs] = value
		delete(r.dependencies, b.needs)
	})
}

func (b *ContextualBuilder) apply(fn func(r *registration)) error {
	if b.needs == "" {
		return &InvalidRegistrationError{Name: b.name, Reason: "contextual binding without Needs"}
	}
	r, ok := b.container.lookup(b.name)
	if !ok {
		return &InvalidRegistrationError{Name: b.name, Reason: "contextual binding for an unregistered name"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r)
	return nil
}
