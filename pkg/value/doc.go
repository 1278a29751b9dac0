// Package value implements the dynamic values exchanged with callers and
// their JSON form.
//
// A Value is one of null, bool, number, string, array or object. Objects
// remember the order in which keys were first set, and that order is the
// order Encode writes them in, so encoding is deterministic:
//
//	obj := value.NewObject()
//	obj.Set("title", value.String("example"))
//	obj.Set("done", value.Bool(false))
//	b, _ := value.Encode(value.FromObject(obj)) // {"title":"example","done":false}
//
//	v, err := value.Decode([]byte(`{"a":1}`))
//	var perr *value.ParseError
//	if errors.As(err, &perr) {
//	    fmt.Println(perr.Line, perr.Column)
//	}
//
// Empty arrays and empty objects are distinct kinds and round-trip as []
// and {} respectively.
package value
