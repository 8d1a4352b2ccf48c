package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeDescriptor(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"int", "int"},
		{"  int  ", "int"},
		{"List< int >", "List<int>"},
		{"Dictionary<string,  int>", "Dictionary<string,int>"},
		{"Dictionary<string, int>", "Dictionary<string,int>"},
		{"int [ ]", "int[]"},
		{"int?", "int?"},
		{"unsigned   long", "unsigned long"},
		{"ref\tint", "ref int"},
		{"Func< int , string >", "Func<int,string>"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDescriptor(tt.in))
		})
	}
}

func TestMethodSignature_Signature(t *testing.T) {
	m := &MethodSignature{
		Name:       "Greet",
		ReturnType: "string",
		Parameters: []Parameter{{Type: "string", Name: "name"}, {Type: "int", Name: "times", Text: "int times = 1"}},
	}
	assert.Equal(t, "string Greet(string name, int times = 1)", m.Signature())

	py := &MethodSignature{Name: "greet", Parameters: []Parameter{{Name: "self"}}}
	assert.Equal(t, "greet(self)", py.Signature())
}

func TestMethodSignature_ImplementsDeclaration(t *testing.T) {
	var d Declaration = &MethodSignature{
		Name:       "Sum",
		ReturnType: "int",
		Parameters: []Parameter{{Type: "int", Name: "x"}},
		Body:       "{ return x; }",
	}
	assert.Equal(t, "Sum", d.Identifier())
	assert.Equal(t, "int", d.ResultType())
	assert.Equal(t, []Parameter{{Type: "int", Name: "x"}}, d.Params())
	assert.Equal(t, "{ return x; }", d.BodyText())
}

func TestClassUnit_LinkAfterDecode(t *testing.T) {
	c := &ClassUnit{
		Name:    "A",
		Path:    "A.cs",
		Methods: []*MethodSignature{{Name: "M"}, {Name: "N"}},
	}

	data, err := json.Marshal(c)
	require.NoError(t, err)

	var decoded ClassUnit
	require.NoError(t, json.Unmarshal(data, &decoded))
	for _, m := range decoded.Methods {
		assert.Nil(t, m.Class)
	}

	decoded.Link()
	for _, m := range decoded.Methods {
		assert.Same(t, &decoded, m.Class)
	}
}
