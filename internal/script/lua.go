package script

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/Shopify/go-lua"
	"github.com/kode4food/lru"
)

type (
	// Env compiles and runs sandboxed Lua scripts, caching compiled chunks
	// and pooling interpreter states
	Env struct {
		cache     *lru.Cache[*Compiled]
		statePool chan *lua.State
	}

	// Compiled is a Lua chunk compiled for a fixed list of arguments
	Compiled struct {
		bytecode []byte
		argNames []string
	}
)

const (
	DefaultCacheSize = 1024

	luaStatePoolSize    = 10
	luaGlobalTableIndex = -2
	luaTableIndex       = -3
	luaArgLocalTemplate = "local %s = select(%d, ...)"
	luaGlobalTableName  = "_G"
	luaSeparator        = "\n"
)

var (
	ErrLuaLoad      = errors.New("lua load error")
	ErrLuaExecution = errors.New("lua execution error")
)

var luaExclude = [...]string{
	"io", "os", "debug", "package", "require", "dofile", "loadfile", "load",
}

// NewEnv creates a Lua environment caching up to cacheSize compiled
// scripts
func NewEnv(cacheSize int) *Env {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	return &Env{
		cache:     lru.NewCache[*Compiled](cacheSize),
		statePool: make(chan *lua.State, luaStatePoolSize),
	}
}

// Compile compiles src so that each of argNames is bound to a local
func (e *Env) Compile(src string, argNames []string) (*Compiled, error) {
	return e.cache.Get(hashScript(src, argNames), func() (*Compiled, error) {
		return e.compile(src, argNames)
	})
}

// Run executes a compiled script with positional arguments matching the
// compiled argument names and returns its first result
func (e *Env) Run(c *Compiled, args []any) (any, error) {
	L := e.getState()
	defer e.returnState(L)

	setupSandbox(L)
	if err := L.Load(bytes.NewReader(c.bytecode), "chunk", "b"); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLuaLoad, err)
	}
	for i := range c.argNames {
		var v any
		if i < len(args) {
			v = args[i]
		}
		goToLua(L, v)
	}
	if err := L.ProtectedCall(len(c.argNames), 1, 0); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLuaExecution, err)
	}
	res := luaToGo(L, -1)
	L.Pop(1)
	return res, nil
}

func (e *Env) compile(src string, argNames []string) (*Compiled, error) {
	L := lua.NewState()
	setupSandbox(L)

	if err := lua.LoadString(L, wrapSource(src, argNames)); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLuaLoad, err)
	}

	var buf bytes.Buffer
	if err := L.Dump(&buf); err != nil {
		return nil, err
	}
	return &Compiled{
		bytecode: buf.Bytes(),
		argNames: argNames,
	}, nil
}

func (e *Env) getState() *lua.State {
	select {
	case L := <-e.statePool:
		return L
	default:
		return lua.NewState()
	}
}

func (e *Env) returnState(L *lua.State) {
	L.SetTop(0)

	select {
	case e.statePool <- L:
	default:
	}
}

func wrapSource(src string, argNames []string) string {
	locals := make([]string, len(argNames))
	for i, name := range argNames {
		locals[i] = fmt.Sprintf(luaArgLocalTemplate, name, i+1)
	}
	return strings.Join([]string{
		strings.Join(locals, luaSeparator), src,
	}, luaSeparator)
}

func setupSandbox(L *lua.State) {
	lua.OpenLibraries(L)
	L.Global(luaGlobalTableName)
	for _, name := range luaExclude {
		L.PushNil()
		L.SetField(luaGlobalTableIndex, name)
	}
	L.Pop(1)
}

func hashScript(src string, argNames []string) string {
	h := sha256.New()
	_, _ = h.Write([]byte(src))
	for _, arg := range argNames {
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(arg))
	}
	return hex.EncodeToString(h.Sum(nil))
}
