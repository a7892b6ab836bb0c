package sqlinline

const QInsertHistoryEntry = `--sql 36bf8cc0-726c-4f85-9b0b-823562d5cbdc
insert into creative_history(
  id,
  user_email,
  format,
  product_text,
  occasion,
  copy_json,
  visual_url,
  created_at
) values (
  $1::uuid,
  $2::text,
  $3::text,
  $4::text,
  $5::text,
  $6::jsonb,
  $7::text,
  $8::timestamptz
);
`

const QListHistoryByUser = `--sql 8072636e-66a2-4f11-8b80-51239195212a
select id, user_email, format, product_text, occasion, copy_json, visual_url, created_at
from creative_history
where user_email = $1::text
order by created_at desc
limit $2::int offset $3::int;
`

const QSelectHistoryEntry = `--sql 98e2fe7f-318c-4636-a2e5-f7e3112794ed
select id, user_email, format, product_text, occasion, copy_json, visual_url, created_at
from creative_history
where id = $1::uuid and user_email = $2::text
limit 1;
`

// Weeks start on Sunday, the same boundary the dashboard counts from, so
// date_trunc's ISO Monday week is shifted by one day.
const QCountHistoryByUser = `--sql 46e6ff79-1ea5-4775-9e8c-6675f4f17d61
select
  count(*) filter (where created_at >= date_trunc('day', now())) as created_today,
  count(*) filter (where created_at >= date_trunc('week', now() + interval '1 day') - interval '1 day') as created_this_week,
  count(*) as total
from creative_history
where user_email = $1::text;
`
