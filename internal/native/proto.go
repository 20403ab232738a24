package native

import (
	"fmt"
	"strings"

	"github.com/jhump/protoreflect/desc"
	"github.com/jhump/protoreflect/desc/protoparse"
	"google.golang.org/protobuf/types/descriptorpb"
)

var protoAliases = []struct{ native, model string }{
	{"bool", "bool"},
	{"byte", "byte"},
	{"int32", "int"},
	{"sint32", "int"},
	{"sfixed32", "int"},
	{"uint32", "uint"},
	{"fixed32", "uint"},
	{"int64", "long"},
	{"sint64", "long"},
	{"sfixed64", "long"},
	{"uint64", "ulong"},
	{"fixed64", "ulong"},
	{"double", "real"},
	{"float", "real"},
	{"string", "string"},
	{"list", "list"},
	{"google.protobuf.Timestamp", "DateTime"},
	{"google.protobuf.Duration", "TimeSpan"},
	{"google.protobuf.Any", "object"},
}

// LoadProto parses .proto files and describes their messages, enums and
// services. Dependencies are included; well-known timestamp and duration
// messages map to the temporal primitives.
func LoadProto(importPaths []string, files ...string) (*Static, error) {
	parser := protoparse.Parser{ImportPaths: importPaths}
	if len(importPaths) == 0 {
		parser.ImportPaths = []string{"."}
	}
	fds, err := parser.ParseFiles(files...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse proto: %w", err)
	}
	return FromProtoFiles(fds)
}

// ParseProto is LoadProto over in-memory sources keyed by file name.
func ParseProto(sources map[string]string, files ...string) (*Static, error) {
	parser := protoparse.Parser{Accessor: protoparse.FileContentsFromMap(sources)}
	fds, err := parser.ParseFiles(files...)
	if err != nil {
		return nil, fmt.Errorf("failed to parse proto: %w", err)
	}
	return FromProtoFiles(fds)
}

// FromProtoFiles describes already-linked file descriptors.
func FromProtoFiles(fds []*desc.FileDescriptor) (*Static, error) {
	p := &protoLoader{catalog: NewStatic(), seen: make(map[string]bool)}
	for _, a := range protoAliases {
		p.catalog.AliasPrimitive(a.native, a.model)
	}
	for _, fd := range fds {
		if err := p.addFile(fd); err != nil {
			return nil, err
		}
	}
	if p.usesMap {
		p.catalog.AddType(TypeInfo{Name: goMap, Kind: KindClass, TypeParams: []string{"K", "V"}})
	}
	return p.catalog.Freeze(), nil
}

type protoLoader struct {
	catalog *Static
	seen    map[string]bool
	usesMap bool
}

func (p *protoLoader) addFile(fd *desc.FileDescriptor) error {
	if p.seen[fd.GetName()] {
		return nil
	}
	p.seen[fd.GetName()] = true
	for _, dep := range fd.GetDependencies() {
		if err := p.addFile(dep); err != nil {
			return err
		}
	}
	for _, md := range fd.GetMessageTypes() {
		if err := p.addMessage(md); err != nil {
			return err
		}
	}
	for _, ed := range fd.GetEnumTypes() {
		if err := p.addEnum(ed); err != nil {
			return err
		}
	}
	for _, sd := range fd.GetServices() {
		if err := p.addService(sd); err != nil {
			return err
		}
	}
	return nil
}

func (p *protoLoader) addMessage(md *desc.MessageDescriptor) error {
	if md.IsMapEntry() {
		return nil
	}
	fqn := md.GetFullyQualifiedName()
	if _, aliased := p.catalog.Primitive(fqn); aliased {
		return nil
	}
	ns, name := splitPath(fqn)
	t := TypeInfo{
		Namespace:    ns,
		Name:         name,
		Kind:         KindStruct,
		Constructors: []Callable{{Name: name}},
	}
	for _, f := range md.GetFields() {
		t.Properties = append(t.Properties, Property{Name: f.GetName(), Type: p.fieldRef(f)})
	}
	if err := p.catalog.AddType(t); err != nil {
		return err
	}
	for _, nested := range md.GetNestedMessageTypes() {
		if err := p.addMessage(nested); err != nil {
			return err
		}
	}
	for _, ed := range md.GetNestedEnumTypes() {
		if err := p.addEnum(ed); err != nil {
			return err
		}
	}
	return nil
}

func (p *protoLoader) addEnum(ed *desc.EnumDescriptor) error {
	fqn := ed.GetFullyQualifiedName()
	ns, name := splitPath(fqn)
	t := TypeInfo{Namespace: ns, Name: name, Kind: KindEnum}
	for _, v := range ed.GetValues() {
		t.Constants = append(t.Constants, Constant{
			Name:  v.GetName(),
			Type:  Ref(fqn),
			Value: fmt.Sprint(v.GetNumber()),
		})
	}
	return p.catalog.AddType(t)
}

func (p *protoLoader) addService(sd *desc.ServiceDescriptor) error {
	ns, name := splitPath(sd.GetFullyQualifiedName())
	t := TypeInfo{Namespace: ns, Name: name, Kind: KindInterface}
	for _, m := range sd.GetMethods() {
		in := p.messageRef(m.GetInputType())
		if m.IsClientStreaming() {
			in = Ref("list", in)
		}
		out := p.messageRef(m.GetOutputType())
		if m.IsServerStreaming() {
			out = Ref("list", out)
		}
		c := Callable{
			Name:     m.GetName(),
			Params:   []Param{{Name: "request", Type: in}},
			Return:   out,
			Abstract: true,
		}
		if m.GetMethodOptions().GetDeprecated() {
			c.Deprecated = DeprecatedWarning
		}
		t.Methods = append(t.Methods, c)
	}
	return p.catalog.AddType(t)
}

func (p *protoLoader) fieldRef(f *desc.FieldDescriptor) TypeRef {
	if f.IsMap() {
		p.usesMap = true
		return Ref(goMap, p.scalarRef(f.GetMapKeyType()), p.scalarRef(f.GetMapValueType()))
	}
	ref := p.scalarRef(f)
	if f.IsRepeated() {
		return Ref("list", ref)
	}
	return ref
}

func (p *protoLoader) scalarRef(f *desc.FieldDescriptor) TypeRef {
	switch f.GetType() {
	case descriptorpb.FieldDescriptorProto_TYPE_INT32:
		return Ref("int32")
	case descriptorpb.FieldDescriptorProto_TYPE_SINT32:
		return Ref("sint32")
	case descriptorpb.FieldDescriptorProto_TYPE_SFIXED32:
		return Ref("sfixed32")
	case descriptorpb.FieldDescriptorProto_TYPE_INT64:
		return Ref("int64")
	case descriptorpb.FieldDescriptorProto_TYPE_SINT64:
		return Ref("sint64")
	case descriptorpb.FieldDescriptorProto_TYPE_SFIXED64:
		return Ref("sfixed64")
	case descriptorpb.FieldDescriptorProto_TYPE_UINT32:
		return Ref("uint32")
	case descriptorpb.FieldDescriptorProto_TYPE_FIXED32:
		return Ref("fixed32")
	case descriptorpb.FieldDescriptorProto_TYPE_UINT64:
		return Ref("uint64")
	case descriptorpb.FieldDescriptorProto_TYPE_FIXED64:
		return Ref("fixed64")
	case descriptorpb.FieldDescriptorProto_TYPE_FLOAT:
		return Ref("float")
	case descriptorpb.FieldDescriptorProto_TYPE_DOUBLE:
		return Ref("double")
	case descriptorpb.FieldDescriptorProto_TYPE_BOOL:
		return Ref("bool")
	case descriptorpb.FieldDescriptorProto_TYPE_STRING:
		return Ref("string")
	case descriptorpb.FieldDescriptorProto_TYPE_BYTES:
		return Ref("list", Ref("byte"))
	case descriptorpb.FieldDescriptorProto_TYPE_MESSAGE, descriptorpb.FieldDescriptorProto_TYPE_GROUP:
		return p.messageRef(f.GetMessageType())
	case descriptorpb.FieldDescriptorProto_TYPE_ENUM:
		return Ref(f.GetEnumType().GetFullyQualifiedName())
	}
	return Ref("google.protobuf.Any")
}

func (p *protoLoader) messageRef(md *desc.MessageDescriptor) TypeRef {
	return Ref(md.GetFullyQualifiedName())
}

// splitPath splits "a.b.C" into ("a.b", "C").
func splitPath(fqn string) (string, string) {
	i := strings.LastIndexByte(fqn, '.')
	if i < 0 {
		return "", fqn
	}
	return fqn[:i], fqn[i+1:]
}
