package emitter

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/example/stubgen/internal/assembly"
)

func TestTypeModifiers(t *testing.T) {
	cases := []struct {
		name string
		in   assembly.TypeModel
		want string
	}{
		{"plain class", assembly.TypeModel{Kind: assembly.KindClass}, "public"},
		{"abstract class", assembly.TypeModel{Kind: assembly.KindClass, Abstract: true}, "public abstract"},
		{"sealed class", assembly.TypeModel{Kind: assembly.KindClass, Sealed: true}, "public sealed"},
		{"static class", assembly.TypeModel{Kind: assembly.KindClass, Abstract: true, Sealed: true}, "public static"},
		{"protected nested", assembly.TypeModel{Kind: assembly.KindClass, Access: assembly.AccessProtected}, "protected"},
		{"interface ignores abstract", assembly.TypeModel{Kind: assembly.KindInterface, Abstract: true}, "public"},
		{"struct ignores sealed", assembly.TypeModel{Kind: assembly.KindStruct, Sealed: true}, "public"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, typeModifiers(&c.in))
		})
	}
}

func TestMemberModifiers(t *testing.T) {
	cases := []struct {
		name string
		kind assembly.TypeKind
		in   assembly.MemberModel
		want string
	}{
		{"instance method", assembly.KindClass, assembly.MemberModel{}, "public "},
		{"static", assembly.KindClass, assembly.MemberModel{Static: true}, "public static "},
		{"abstract", assembly.KindClass, assembly.MemberModel{Abstract: true}, "public abstract "},
		{"virtual", assembly.KindClass, assembly.MemberModel{Virtual: true}, "public virtual "},
		{"override", assembly.KindClass, assembly.MemberModel{Override: true}, "public override "},
		{"sealed override", assembly.KindClass, assembly.MemberModel{Override: true, Sealed: true}, "public sealed override "},
		{"abstract override", assembly.KindClass, assembly.MemberModel{Override: true, Abstract: true}, "public abstract override "},
		{"protected virtual", assembly.KindClass, assembly.MemberModel{Access: assembly.AccessProtected, Virtual: true}, "protected virtual "},
		{"protected internal", assembly.KindClass, assembly.MemberModel{Access: assembly.AccessProtectedInternal}, "protected internal "},
		{"const field", assembly.KindClass, assembly.MemberModel{Const: true, Static: true}, "public const "},
		{"static readonly field", assembly.KindClass, assembly.MemberModel{Static: true, ReadOnly: true}, "public static readonly "},
		{"interface member", assembly.KindInterface, assembly.MemberModel{Abstract: true}, ""},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, memberModifiers(c.kind, &c.in))
		})
	}
}
