package codec_test

import (
	"fmt"

	"github.com/taskvault/taskvault/pkg/codec"
)

func ExampleAttrCodec() {
	c := codec.NewAttrCodec(nil)

	attrs := codec.NewAttributeMap()
	attrs.Set("priority", 2)
	attrs.Set("title", "buy milk")
	attrs.Set("done", false)

	encoded, _ := c.Encode(attrs)
	fmt.Println(encoded)

	decoded := c.Decode(encoded)
	title, _ := decoded.Get("title")
	fmt.Println(title)

	// Output:
	// priority|i2|title|sbuy milk|done|bfalse|
	// buy milk
}
