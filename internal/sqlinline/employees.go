package sqlinline

const QSelectEmployeeByEmail = `--sql 44107716-b2bb-4667-8fdc-857e7ed3130b
select email, name, password_hash, created_at
from employees
where email = $1::text
limit 1;
`

const QUpsertEmployee = `--sql 5e01e476-d42b-47a1-9481-e01d92a78543
insert into employees(email, name, password_hash, created_at)
values ($1::text, $2::text, $3::text, now())
on conflict (email) do update
set name = excluded.name,
    password_hash = excluded.password_hash;
`
