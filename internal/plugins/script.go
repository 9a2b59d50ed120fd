package plugins

import (
	"context"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"

	"project_waBot/internal/entities"
)

// scriptHandler wraps a Lua chunk as a plugin entry point. Each
// invocation gets a fresh interpreter, so scripts cannot leak state
// between messages or between senders.
func scriptHandler(src string) HandlerFunc {
	return func(ctx context.Context, msg entities.Message, env *Env) error {
		L := lua.NewState()
		defer L.Close()
		L.SetContext(ctx)

		L.SetGlobal("text", lua.LString(env.Text))
		L.SetGlobal("prefix", lua.LString(env.Prefix))
		L.SetGlobal("command", lua.LString(env.Command))
		L.SetGlobal("sender", lua.LString(msg.Sender))
		L.SetGlobal("chat", lua.LString(msg.ChatID))
		L.SetGlobal("is_group", lua.LBool(msg.IsGroup))
		L.SetGlobal("push_name", lua.LString(msg.PushName))

		args := L.NewTable()
		for _, a := range env.Args {
			args.Append(lua.LString(a))
		}
		L.SetGlobal("args", args)

		L.SetGlobal("reply", L.NewFunction(func(L *lua.LState) int {
			if err := env.Transport.Reply(ctx, msg, L.CheckString(1)); err != nil {
				L.RaiseError("reply: %v", err)
			}
			return 0
		}))
		L.SetGlobal("send", L.NewFunction(func(L *lua.LState) int {
			if err := env.Transport.SendText(ctx, L.CheckString(1), L.CheckString(2)); err != nil {
				L.RaiseError("send: %v", err)
			}
			return 0
		}))
		L.SetGlobal("get_setting", L.NewFunction(func(L *lua.LState) int {
			key := L.CheckString(1)
			def := L.Get(2)
			L.Push(toLua(L, env.Store.GetSetting(key, fromLua(def))))
			return 1
		}))
		L.SetGlobal("user_limit", L.NewFunction(func(L *lua.LState) int {
			user, _, err := env.Store.GetUser(msg.Sender, msg.PushName)
			if err != nil {
				L.RaiseError("user_limit: %v", err)
			}
			L.Push(lua.LNumber(user.Limit))
			L.Push(lua.LNumber(env.Store.Settings().MaxLimit))
			return 2
		}))

		if err := L.DoString(src); err != nil {
			return fmt.Errorf("script %s: %w", env.Command, err)
		}
		return nil
	}
}

func toLua(L *lua.LState, v any) lua.LValue {
	switch x := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(x)
	case int:
		return lua.LNumber(x)
	case int64:
		return lua.LNumber(x)
	case float64:
		return lua.LNumber(x)
	case string:
		return lua.LString(x)
	case time.Duration:
		return lua.LNumber(x.Seconds())
	case time.Time:
		return lua.LString(x.Format(time.RFC3339))
	default:
		return lua.LString(fmt.Sprint(x))
	}
}

func fromLua(v lua.LValue) any {
	switch x := v.(type) {
	case lua.LBool:
		return bool(x)
	case lua.LNumber:
		return float64(x)
	case lua.LString:
		return string(x)
	default:
		return nil
	}
}
